package qpu

import (
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/oqtopus-team/qsim/circuit"
	"github.com/oqtopus-team/qsim/core"
	"github.com/oqtopus-team/qsim/executor"
	"github.com/oqtopus-team/qsim/gate"
	"github.com/oqtopus-team/qsim/noise"
	"github.com/oqtopus-team/qsim/program"
	"github.com/oqtopus-team/qsim/statevec"
	"go.uber.org/zap"
)

const SimulatorType = "statevector"

// SimulatorQPU runs jobs on the state-vector simulator, optionally under a
// device-wide noise model.
type SimulatorQPU struct {
	deviceSetting *DeviceSetting
	model         *noise.Model
}

// NewSimulatorQPU returns a ready simulator. A nil setting means defaults;
// a nil model means ideal runs.
func NewSimulatorQPU(ds *DeviceSetting, model *noise.Model) *SimulatorQPU {
	if ds == nil {
		ds = NewDeviceSetting()
	}
	return &SimulatorQPU{
		deviceSetting: ds,
		model:         model,
	}
}

func (q *SimulatorQPU) Setup(conf *core.Conf) error {
	zap.L().Debug("setting up simulator QPU")
	ds, err := LoadDeviceSetting()
	if err != nil {
		zap.L().Error(fmt.Sprintf("failed to load device setting/reason:%s", err))
		return err
	}
	ns := noise.NewDefaultSetting()
	if _, err := core.GetComponentSetting(NoiseSettingName, ns); err != nil {
		zap.L().Error(fmt.Sprintf("failed to load noise setting/reason:%s", err))
		return err
	}
	model, err := ns.Model()
	if err != nil {
		return err
	}
	q.deviceSetting = ds
	q.model = model
	zap.L().Info(fmt.Sprintf("[Simulator] %s is ready/max_qubits:%d/max_shots:%d/noise:%s",
		ds.DeviceName, ds.MaxQubits, ds.MaxShots, q.noiseName()))
	return nil
}

func (q *SimulatorQPU) Send(j core.Job) error {
	return q.Execute(j.JobData())
}

// Execute simulates jd in place and marks it succeeded.
func (q *SimulatorQPU) Execute(jd *core.JobData) error {
	c, err := q.build(jd.Format, jd.Program)
	if err != nil {
		return err
	}
	seed := JobSeed(jd)
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	zap.L().Info(fmt.Sprintf("[Simulator] starting job(%s)/qubits:%d/instructions:%d/shots:%d/seed:%d",
		jd.ID, c.NumQubits(), c.Len(), jd.Shots, seed))

	start := time.Now()
	counts, err := executor.Sample(c, jd.Shots, q.model, rng)
	if err != nil {
		return err
	}
	if jd.ShowState {
		s, err := executor.Run(c)
		if err != nil {
			return err
		}
		jd.Result.Probabilities = nonZero(s.Probabilities())
	}
	jd.Result.Counts = counts
	jd.Result.Noise = q.noiseName()
	jd.Result.ExecutionTime = time.Since(start)
	jd.Status = core.SUCCEEDED
	jd.Ended = strfmt.DateTime(time.Now())
	zap.L().Info(fmt.Sprintf("[Simulator] finished job(%s) in %s", jd.ID, jd.Result.ExecutionTime))
	return nil
}

// Validate parses the program and checks it fits the device.
func (q *SimulatorQPU) Validate(format, src string) error {
	_, err := q.build(format, src)
	return err
}

func (q *SimulatorQPU) GetDeviceInfo() *core.DeviceInfo {
	return &core.DeviceInfo{
		DeviceName:   q.deviceSetting.DeviceName,
		ProviderName: q.deviceSetting.ProviderName,
		Type:         SimulatorType,
		Status:       core.Available,
		MaxQubits:    q.deviceSetting.MaxQubits,
		MaxShots:     q.deviceSetting.MaxShots,
		Noise:        q.noiseName(),
		Gates:        gate.Names(),
	}
}

func (q *SimulatorQPU) Model() *noise.Model {
	return q.model
}

func (q *SimulatorQPU) build(format, src string) (*circuit.Circuit, error) {
	f := program.Format(format)
	if f == "" {
		f = program.DetectFormat("", src)
	}
	c, err := program.Parse(f, src)
	if err != nil {
		return nil, err
	}
	if c.NumQubits() > q.deviceSetting.MaxQubits {
		return nil, fmt.Errorf("%w: program uses %d qubits, device %s allows %d",
			core.ErrConfiguration, c.NumQubits(), q.deviceSetting.DeviceName, q.deviceSetting.MaxQubits)
	}
	return c, nil
}

func (q *SimulatorQPU) noiseName() string {
	if q.model == nil {
		return "none"
	}
	return q.model.String()
}

// JobSeed is the explicit seed of jd, or a hash of its ID so that reruns of
// the same job reproduce the same counts.
func JobSeed(jd *core.JobData) uint64 {
	if jd.Seed != nil {
		return *jd.Seed
	}
	h := fnv.New64a()
	h.Write([]byte(jd.ID))
	return h.Sum64()
}

func nonZero(probs map[string]float64) map[string]float64 {
	out := make(map[string]float64)
	for k, v := range probs {
		if v > statevec.Epsilon {
			out[k] = v
		}
	}
	return out
}
