package main

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"

	flags "github.com/jessevdk/go-flags"
	"github.com/massn/envordot"

	"github.com/oqtopus-team/qsim/circuit"
	"github.com/oqtopus-team/qsim/common"
	"github.com/oqtopus-team/qsim/core"
	"github.com/oqtopus-team/qsim/demo"
	"github.com/oqtopus-team/qsim/log"
	"github.com/oqtopus-team/qsim/program"
	"github.com/oqtopus-team/qsim/qpu"

	"go.uber.org/zap"
)

var versionByBuildFlag string
var parser *flags.Parser
var qsim *QSim

func init() {
	if err := envordot.Load(false, ".env"); err != nil {
		fmt.Fprintf(os.Stderr, "Not found \".env\" file. Use only environment variables. Reason:%s\n", err.Error())
	}
	qsim = &QSim{}
	setParser(qsim)
}

type QSim struct {
	Conf *core.Conf
}

func setParser(q *QSim) {
	parser = flags.NewParser(q, flags.Default)
	parser.ShortDescription = "qsim"
	parser.LongDescription = "a state-vector quantum circuit simulator."
	parser.AddCommand("run", "run a program",
		"run an OpenQASM or JSON program and print the measured counts", &runCmd{})
	parser.AddCommand("example", "run a built-in example",
		fmt.Sprintf("run one of the built-in examples %v", demo.Names()), &exampleCmd{})
	parser.AddCommand("batch", "run programs through the job scheduler",
		"submit every program as a job, wait for all of them and print their results", &batchCmd{})
}

func parse() {
	if _, err := parser.Parse(); err != nil {
		code := 1
		if fe, ok := err.(*flags.Error); ok {
			if fe.Type == flags.ErrHelp {
				code = 0
			}
		}
		if code == 1 {
			fmt.Fprintf(os.Stderr, "failed to run qsim, because %s\n", err)
		}
		os.Exit(code)
	}
}

func main() {
	parse()
}

// setup prepares the logger, the version and the setting file shared by all
// commands. A missing setting file falls back to defaults.
func setup(conf *core.Conf) (*zap.Logger, error) {
	logger, err := log.SetZap(conf)
	if err != nil {
		return nil, err
	}
	core.SetVersion(conf, versionByBuildFlag)
	core.SetInfo(conf)
	zap.L().Debug("current info:" + core.CurrentInfo.String())
	core.ResetSetting()
	if _, err := os.Stat(conf.SettingPath); errors.Is(err, os.ErrNotExist) {
		zap.L().Info(fmt.Sprintf("setting file %s is not found, using defaults", conf.SettingPath))
		return logger, nil
	}
	if err := core.ParseSettingFromPath(conf.SettingPath); err != nil {
		zap.L().Error(fmt.Sprintf("failed to parse settings/reason:%s", err))
		return logger, err
	}
	return logger, nil
}

type runCmd struct {
	Shots     int     `short:"n" long:"shots" description:"number of shots" default:"1024"`
	Seed      *uint64 `long:"seed" description:"seed of the random generator, derived from the file name when omitted"`
	Format    string  `long:"format" description:"program format, detected from the file when omitted" choice:"json" choice:"qasm"`
	ShowState bool    `long:"show-state" description:"print the ideal outcome probabilities"`
	Draw      bool    `long:"draw" description:"draw the circuit"`
	Args      struct {
		File string `positional-arg-name:"file" required:"yes"`
	} `positional-args:"yes"`
}

func (c *runCmd) Execute(args []string) error {
	logger, err := setup(qsim.Conf)
	if err != nil {
		return err
	}
	defer logger.Sync()

	q := &qpu.SimulatorQPU{}
	if err := q.Setup(qsim.Conf); err != nil {
		return err
	}
	if limit := q.GetDeviceInfo().MaxShots; c.Shots > limit {
		return fmt.Errorf("%w: shots(%d) is over the limit(%d)", core.ErrInvalidParameter, c.Shots, limit)
	}
	src, err := common.ReadFile(c.Args.File)
	if err != nil {
		return err
	}
	format := c.Format
	if format == "" {
		format = string(program.DetectFormat(c.Args.File, src))
	}

	jd := core.NewJobData()
	jd.ID = filepath.Base(c.Args.File)
	jd.Program = src
	jd.Format = format
	jd.Shots = c.Shots
	jd.Seed = c.Seed
	jd.ShowState = c.ShowState
	if c.Draw {
		circ, err := program.Parse(program.Format(format), src)
		if err != nil {
			return err
		}
		fmt.Println(circuit.Draw(circ))
	}
	if err := q.Execute(jd); err != nil {
		return err
	}
	fmt.Print(jd.Result.Counts.Histogram())
	fmt.Println(jd.Result.ToString())
	return nil
}

type exampleCmd struct {
	Shots int    `short:"n" long:"shots" description:"number of shots" default:"1000"`
	Seed  uint64 `long:"seed" description:"seed of the random generator" default:"1"`
	Args  struct {
		Name string `positional-arg-name:"name" required:"yes"`
	} `positional-args:"yes"`
}

func (c *exampleCmd) Execute(args []string) error {
	logger, err := setup(qsim.Conf)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ex, err := demo.Get(c.Args.Name)
	if err != nil {
		return err
	}
	rng := rand.New(rand.NewPCG(c.Seed, c.Seed))
	return demo.Report(os.Stdout, ex, c.Shots, rng)
}
