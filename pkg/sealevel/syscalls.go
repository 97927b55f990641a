package sealevel

import (
	"sort"

	"github.com/spaolacci/murmur3"
	"go.firedancer.io/cpi/pkg/features"
)

// SymbolHash returns the murmur3 32-bit hash a program uses to call a
// syscall by name.
func SymbolHash(s string) uint32 {
	return murmur3.Sum32([]byte(s))
}

// SyscallRegistry maps symbol hashes to syscall names.
type SyscallRegistry map[uint32]string

func NewSyscallRegistry() SyscallRegistry {
	return make(SyscallRegistry)
}

func (s SyscallRegistry) Register(name string) (hash uint32, ok bool) {
	hash = SymbolHash(name)
	if _, exist := s[hash]; exist {
		return 0, false // collision or duplicate
	}
	s[hash] = name
	ok = true
	return
}

func (s SyscallRegistry) Lookup(hash uint32) (string, bool) {
	name, ok := s[hash]
	return name, ok
}

// Names lists the registered syscalls in alphabetical order.
func (s SyscallRegistry) Names() []string {
	names := make([]string, 0, len(s))
	for _, name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Syscalls creates a registry of the syscalls served by the runtime port.
func Syscalls(f *features.Features) SyscallRegistry {
	reg := NewSyscallRegistry()
	reg.Register("sol_log_")
	reg.Register("sol_log_pubkey")

	reg.Register("sol_invoke_signed_c")
	reg.Register("sol_invoke_signed_rust")
	reg.Register("sol_get_stack_height")

	reg.Register("sol_create_program_address")
	reg.Register("sol_try_find_program_address")

	if f.IsActive(features.ReturnDataSyscallEnabled) {
		reg.Register("sol_set_return_data")
		reg.Register("sol_get_return_data")
	}

	return reg
}
