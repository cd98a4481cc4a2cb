package main

import (
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/run"
	"github.com/oqtopus-team/qsim/common"
	"github.com/oqtopus-team/qsim/core"
	"github.com/oqtopus-team/qsim/estimation"
	"github.com/oqtopus-team/qsim/log"
	"github.com/oqtopus-team/qsim/program"
	"github.com/oqtopus-team/qsim/qpu"
	"github.com/oqtopus-team/qsim/sampling"
	"github.com/oqtopus-team/qsim/scheduler"
	"go.uber.org/dig"
	"go.uber.org/zap"
)

const donePollPeriod = 50 * time.Millisecond

type batchCmd struct {
	Shots      int     `short:"n" long:"shots" description:"number of shots per program" default:"1024"`
	Seed       *uint64 `long:"seed" description:"seed shared by every job, derived from each job ID when omitted"`
	JobType    string  `long:"job-type" description:"job type" default:"sampling" choice:"normal" choice:"sampling" choice:"estimation"`
	Operators  string  `long:"operators" description:"observable of estimation jobs as JSON, e.g. [{\"pauli\":\"Z0 Z1\",\"coeff\":1}]"`
	MetricsDir string  `long:"metrics-dir" description:"directory of the daily JSON metrics files"`
	Args       struct {
		Files []string `positional-arg-name:"files" required:"1"`
	} `positional-args:"yes"`
}

type submitted struct {
	file  string
	jobID string
	err   error
}

func provideDIContainer() (*dig.Container, error) {
	c := dig.New()
	if err := c.Provide(func() core.QPUManager { return &qpu.SimulatorQPU{} }); err != nil {
		return nil, err
	}
	if err := c.Provide(func() core.Scheduler { return &scheduler.NormalScheduler{} }); err != nil {
		return nil, err
	}
	if err := c.Provide(func() core.DBManager { return &core.MemoryDB{} }); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *batchCmd) Execute(args []string) error {
	conf := qsim.Conf
	logger, err := setup(conf)
	if err != nil {
		return err
	}
	defer logger.Sync()

	files, err := common.ExpandPaths(c.Args.Files)
	if err != nil {
		return err
	}

	container, err := provideDIContainer()
	if err != nil {
		zap.L().Error(fmt.Sprintf("Failed to setting up DI-Container. Reason:%s", err.Error()))
		return err
	}
	s := core.NewSystemComponents(container)
	if err := s.Setup(conf); err != nil {
		zap.L().Error(fmt.Sprintf("Failed to setting up Container. Reason:%s", err.Error()))
		return err
	}
	defer s.TearDown()

	if c.JobType == estimation.ESTIMATION_JOB {
		if _, err := estimation.ParseOperators(c.Operators); err != nil {
			return err
		}
	}
	if _, err := core.NewJobManager(&core.NormalJob{}, &sampling.SamplingJob{}, &estimation.EstimationJob{}); err != nil {
		return err
	}
	if err := s.StartContainer(); err != nil {
		return err
	}

	jobs := make([]submitted, 0, len(files))
	for _, f := range files {
		jobs = append(jobs, c.submit(s, f))
	}

	rc := core.NewRunContext()
	if err := c.setupRunGroup(rc, conf); err != nil {
		zap.L().Error(fmt.Sprintf("Failed to setup run group. Reason:%s", err))
		return err
	}
	if err := rc.Run(); err != nil {
		var se run.SignalError
		if errors.As(err, &se) {
			fmt.Fprintf(os.Stderr, "interrupted by %s, printing finished jobs only\n", se.Signal)
		} else {
			return err
		}
	}
	return report(jobs)
}

func (c *batchCmd) submit(s *core.SystemComponents, file string) submitted {
	sub := submitted{file: file, jobID: uuid.NewString()}
	src, err := common.ReadFile(file)
	if err != nil {
		sub.err = err
		return sub
	}
	jc, err := core.NewJobContext()
	if err != nil {
		sub.err = err
		return sub
	}
	j, err := core.GetJobManager().NewJobWithValidation(&core.JobParam{
		JobID:   sub.jobID,
		Program: src,
		Format:  string(program.DetectFormat(file, src)),
		Shots:   c.Shots,
		Seed:    c.Seed,
		JobType: c.JobType,
		Info:    c.Operators,
	}, jc)
	if err != nil {
		sub.err = err
		return sub
	}
	if err := s.Submit(j); err != nil {
		sub.err = err
		return sub
	}
	zap.L().Info(fmt.Sprintf("submitted %s as job(%s)", file, sub.jobID))
	return sub
}

func (c *batchCmd) setupRunGroup(rc *core.RunContext, conf *core.Conf) error {
	sc := core.GetSystemComponents()
	rc.AddUntil(donePollPeriod, "batch", func() bool {
		finished, total := log.Progress(sc)
		return finished == total
	})

	progress := &log.ProgressLogTaskImpl{FileDir: c.MetricsDir}
	if err := progress.Setup(); err != nil {
		return err
	}
	period := time.Duration(conf.ProgressLogPeriod) * time.Second
	if err := rc.AddPeriodicTask(&core.PeriodicTask{Period: period, PeriodicTaskImpl: progress},
		log.ProgressLogTaskName); err != nil {
		return err
	}
	if err := rc.AddPeriodicTask(&core.PeriodicTask{Period: period, PeriodicTaskImpl: &log.VersionLogTaskImpl{}},
		log.VersionLogTaskName); err != nil {
		return err
	}
	rc.Add(
		run.SignalHandler(
			rc.Context,
			os.Interrupt, syscall.SIGTERM))
	core.SetRunContext(rc)
	return nil
}

func report(jobs []submitted) error {
	failed := 0
	for _, sub := range jobs {
		fmt.Printf("=== %s ===\n", sub.file)
		if sub.err != nil {
			failed++
			fmt.Printf("rejected: %s\n\n", sub.err)
			continue
		}
		j := core.GetJob(sub.jobID)
		if j == nil {
			failed++
			fmt.Printf("job(%s) is lost\n\n", sub.jobID)
			continue
		}
		jd := j.JobData()
		if jd.Status == core.FAILED {
			failed++
		}
		fmt.Printf("job:%s status:%s\n", jd.ID, jd.Status)
		fmt.Println(jd.Result.ToString())
		if jd.Info != "" {
			fmt.Printf("info:%s\n", jd.Info)
		}
		fmt.Println()
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d programs failed", failed, len(jobs))
	}
	return nil
}
