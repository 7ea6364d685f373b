package env

import (
	"fmt"
	"strings"
)

const Prefix = "FLEETINIT_"

type NamingConvention struct{}

func NewNamingConvention() *NamingConvention {
	return &NamingConvention{}
}

// Replace converts flag name to ENV variable name,
// for example "etcd-endpoint" -> "FLEETINIT_ETCD_ENDPOINT".
func (*NamingConvention) Replace(flagName string) string {
	if len(flagName) == 0 {
		panic(fmt.Errorf("flag name cannot be empty"))
	}
	return Prefix + strings.ToUpper(strings.ReplaceAll(flagName, "-", "_"))
}
