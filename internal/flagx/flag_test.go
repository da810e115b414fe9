package flagx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	allowed := []string{"-c", "-config", "-a"}

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"separate value", []string{"-c", "iotadmin.yaml", "-x", "1"}, []string{"-c", "iotadmin.yaml"}},
		{"equals form", []string{"-config=iotadmin.json", "-l", "debug"}, []string{"-config=iotadmin.json"}},
		{"double dash", []string{"--config", "a.yml", "--a=http://x"}, []string{"--config", "a.yml", "--a=http://x"}},
		{"unknown flags and positionals dropped", []string{"-x", "1", "--y=2", "positional"}, []string{}},
		{"flag at the end keeps no value", []string{"-c"}, []string{"-c"}},
		{"dash token is not a value", []string{"-c", "-a", "http://x"}, []string{"-c", "-a", "http://x"}},
		{"equals value may start with dashes", []string{"-config=--odd.json"}, []string{"-config=--odd.json"}},
		{"repeated flag kept in order", []string{"-c", "one.json", "-c", "two.json"}, []string{"-c", "one.json", "-c", "two.json"}},
		{"terminators ignored", []string{"-", "--", "-c", "x.json"}, []string{"-c", "x.json"}},
		{"empty", []string{}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, allowed))
		})
	}
}

func TestConfigFile(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"short", []string{"-c", "/etc/iotadmin.json"}, "/etc/iotadmin.json"},
		{"long", []string{"-config", "/etc/iotadmin.yaml"}, "/etc/iotadmin.yaml"},
		{"mixed with other flags", []string{"-a", "http://x", "-config=/etc/iotadmin.yml", "-w", "drop"}, "/etc/iotadmin.yml"},
		{"absent", []string{"-x", "1", "-y", "2"}, ""},
		{"last wins", []string{"-c", "/path/1.json", "-config", "/path/2.json"}, "/path/2.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ConfigFile(tt.args))
		})
	}
}
