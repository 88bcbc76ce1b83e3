package log

import "slices"

type ModuleMask uint64
type Module uint

const ModuleMaskAll ModuleMask = 0xFFFFFFFFFFFFFFFF

// Standard modules. Each chip core registers its own module with NewModule
// so that its debug output can be enabled on its own.
const (
	ModEmu Module = iota + 1
	ModHwIo
	ModSound
	ModVGM
	ModOutput

	endStandardMods
)

var (
	modCount     = endStandardMods
	modDebugMask ModuleMask
	modNames     = []string{"<error>", "emu", "hwio", "sound", "vgm", "output"}
)

// NewModule registers a new log module. It must be called at package
// initialization, before any concurrent logging takes place.
func NewModule(name string) Module {
	mod := modCount
	modCount++
	modNames = append(modNames, name)
	return mod
}

func ModuleByName(name string) (Module, bool) {
	idx := slices.Index(modNames, name)
	if idx <= 0 {
		return 0, false
	}
	return Module(idx), true
}

// ModuleNames returns the names of all registered modules, sorted.
func ModuleNames() []string {
	names := slices.Clone(modNames[1:])
	slices.Sort(names)
	return names
}

func EnableDebugModules(mask ModuleMask)  { modDebugMask |= mask }
func DisableDebugModules(mask ModuleMask) { modDebugMask &^= mask }

func (mod Module) Mask() ModuleMask { return 1 << ModuleMask(mod) }

func (mod Module) String() string {
	if int(mod) < len(modNames) {
		return modNames[mod]
	}
	return modNames[0]
}

// Enabled reports whether a message at the given level would be emitted.
// Warnings and errors are always emitted, unless logging has been disabled
// altogether.
func (mod Module) Enabled(level Level) bool {
	if disabled {
		return false
	}
	return level <= WarnLevel || modDebugMask&mod.Mask() != 0
}

func (mod Module) Fatalf(format string, args ...any) { Entry{mod: mod}.Fatalf(format, args...) }

func (mod Module) logz(lvl Level, msg string) *EntryZ {
	if !mod.Enabled(lvl) {
		return nil
	}
	z := NewEntryZ()
	z.lvl = lvl
	z.msg = msg
	z.mod = mod
	return z
}

func (mod Module) DebugZ(msg string) *EntryZ { return mod.logz(DebugLevel, msg) }
func (mod Module) InfoZ(msg string) *EntryZ  { return mod.logz(InfoLevel, msg) }
func (mod Module) WarnZ(msg string) *EntryZ  { return mod.logz(WarnLevel, msg) }
func (mod Module) ErrorZ(msg string) *EntryZ { return mod.logz(ErrorLevel, msg) }
func (mod Module) FatalZ(msg string) *EntryZ { return mod.logz(FatalLevel, msg) }
