package cli

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/jobclock/internal/domain"
	"github.com/spf13/pflag"
)

// modeValue is a pflag.Value restricted to the location modes.
type modeValue struct {
	mode *domain.Mode
}

var _ pflag.Value = modeValue{}

func (v modeValue) String() string {
	if v.mode == nil {
		return ""
	}
	return string(*v.mode)
}

func (v modeValue) Set(s string) error {
	m, ok := domain.ParseMode(s)
	if !ok {
		return fmt.Errorf("must be one of %s", modeNames())
	}
	*v.mode = m
	return nil
}

func (modeValue) Type() string { return "mode" }

func modeNames() string {
	names := make([]string, len(domain.ValidModes))
	for i, m := range domain.ValidModes {
		names[i] = string(m)
	}
	return strings.Join(names, "|")
}

// originValue is a pflag.Value for sample origins.
type originValue struct {
	origin *domain.SampleOrigin
}

var _ pflag.Value = originValue{}

func (v originValue) String() string {
	if v.origin == nil {
		return ""
	}
	return string(*v.origin)
}

func (v originValue) Set(s string) error {
	if !domain.ValidOrigins[s] {
		return fmt.Errorf("must be foreground|background|relaunch")
	}
	*v.origin = domain.SampleOrigin(s)
	return nil
}

func (originValue) Type() string { return "origin" }
