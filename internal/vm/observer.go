package vm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

var (
	ErrUnknownOpcode = errors.New("unknown opcode")
	ErrMachineCall   = errors.New("machine code call not supported")
)

// Observer receives per-instruction events from the VM. Implementations
// must not retain or mutate the VM.
type Observer interface {
	// OnInstruction is called before each instruction executes. pc is the
	// address the instruction was fetched from.
	OnInstruction(pc uint16, op Opcode, mnemonic string)

	// OnDiagnostic reports a recoverable condition, such as an opcode that
	// was skipped as a no-op.
	OnDiagnostic(pc uint16, op Opcode, err error)
}

type logObserver struct {
	logger *slog.Logger
}

// NewLogObserver returns an Observer that writes events to logger.
// Instructions are logged at debug level, diagnostics at warn level.
func NewLogObserver(logger *slog.Logger) Observer {
	return &logObserver{logger: logger}
}

func (o *logObserver) OnInstruction(pc uint16, op Opcode, mnemonic string) {
	if !o.logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}

	o.logger.Debug(
		"exec",
		"pc", fmt.Sprintf("0x%04x", pc),
		"opcode", fmt.Sprintf("0x%04x", op.Code),
		"instr", mnemonic,
	)
}

func (o *logObserver) OnDiagnostic(pc uint16, op Opcode, err error) {
	o.logger.Warn(
		"skipped instruction",
		"pc", fmt.Sprintf("0x%04x", pc),
		"opcode", fmt.Sprintf("0x%04x", op.Code),
		"err", err,
	)
}

type nopObserver struct{}

func (nopObserver) OnInstruction(uint16, Opcode, string) {}
func (nopObserver) OnDiagnostic(uint16, Opcode, error)   {}
