package features

import (
	"github.com/mr-tron/base58"
)

type FeatureGate struct {
	Name    string
	Address [32]byte
}

func mustGate(name, addr string) FeatureGate {
	b, err := base58.Decode(addr)
	if err != nil || len(b) != 32 {
		panic("invalid feature gate address " + addr)
	}
	gate := FeatureGate{Name: name}
	copy(gate.Address[:], b)
	return gate
}

var ReturnDataSyscallEnabled = mustGate("ReturnDataSyscallEnabled", "8o1JTm9LAh5oBVPWDLQ42jtxVSsFR2d4LYQwnGFSw3WA")
var LoosenCpiSizeRestriction = mustGate("LoosenCpiSizeRestriction", "8XKEp5V127TL8DELXCPm4n7pVoT7CKAd5gbaeibY4jzu")
var DisableCpiSettingExecutableAndRentEpoch = mustGate("DisableCpiSettingExecutableAndRentEpoch", "Cejs4bWQyk8Dqog6My8fQs2hi9pJj8AKif4TksaBVuF")
var LimitMaxInstructionTraceLength = mustGate("LimitMaxInstructionTraceLength", "3nLWNrSoFS86nBnpPwQ86FM7ABUBr1WA71YeyzyukM5M")

// AllGates lists every gate known to the runtime, in registration order.
var AllGates = []FeatureGate{
	ReturnDataSyscallEnabled,
	LoosenCpiSizeRestriction,
	DisableCpiSettingExecutableAndRentEpoch,
	LimitMaxInstructionTraceLength,
}

// GateByName looks up a gate by its Name.
func GateByName(name string) (FeatureGate, bool) {
	for _, gate := range AllGates {
		if gate.Name == name {
			return gate, true
		}
	}
	return FeatureGate{}, false
}
