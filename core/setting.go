package core

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/oqtopus-team/qsim/common"
	"go.uber.org/zap"
)

var globalSetting *Setting

// Setting holds the top-level tables of the setting file. Each component
// decodes its own table into its own typed struct.
type Setting struct {
	meta       toml.MetaData
	components map[string]toml.Primitive
}

func ResetSetting() {
	globalSetting = newSetting()
}

func newSetting() *Setting {
	return &Setting{
		components: make(map[string]toml.Primitive),
	}
}

func ParseSettingFromPath(settingsPath string) error {
	tomlString, err := common.ReadSettingsFile(settingsPath)
	if err != nil {
		zap.L().Error(fmt.Sprintf("failed to read setting file/reason:%s", err))
		return err
	}
	return ParseSetting(tomlString)
}

func ParseSetting(tomlString string) error {
	s := newSetting()
	if err := s.parseSetting(tomlString); err != nil {
		return err
	}
	globalSetting = s
	return nil
}

func GetGlobalSetting() *Setting {
	return globalSetting
}

// GetComponentSetting decodes the table called name into v. It reports
// false when no setting was loaded or the table is absent, leaving v as is.
func GetComponentSetting(name string, v interface{}) (bool, error) {
	if globalSetting == nil {
		zap.L().Debug("Setting is not initialized")
		return false, nil
	}
	return globalSetting.decodeComponent(name, v)
}

// ComponentNames lists the tables found in the setting file.
func (s *Setting) ComponentNames() []string {
	names := make([]string, 0, len(s.components))
	for _, k := range s.meta.Keys() {
		if len(k) == 1 {
			names = append(names, k[0])
		}
	}
	return names
}

func (s *Setting) parseSetting(tomlString string) error {
	meta, err := toml.Decode(tomlString, &s.components)
	if err != nil {
		zap.L().Error(fmt.Sprintf("failed to parse setting/reason:%s", err))
		return fmt.Errorf("%w: %s", ErrConfiguration, err)
	}
	s.meta = meta
	zap.L().Debug(fmt.Sprintf("Setting has %v", s.ComponentNames()))
	return nil
}

func (s *Setting) decodeComponent(name string, v interface{}) (bool, error) {
	prim, ok := s.components[name]
	if !ok {
		return false, nil
	}
	if err := s.meta.PrimitiveDecode(prim, v); err != nil {
		zap.L().Error(fmt.Sprintf("failed to decode setting %s/reason:%s", name, err))
		return true, fmt.Errorf("%w: [%s] %s", ErrConfiguration, name, err)
	}
	return true, nil
}
