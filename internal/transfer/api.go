package transfer

import "context"

// Convenience wrappers over TransferFile for call sites that know their
// strategy up front. All of them share the strict guard behavior: same-path
// and target-inside-source conditions are hard errors, never soft no-ops.

// Link hardlinks src to dst, falling back to a copy.
func (e *Engine) Link(ctx context.Context, src, dst string, opts FileOptions) (Capability, error) {
	return e.TransferFile(ctx, src, dst, HardLink|Copy, opts)
}

// CopyTo copies src to dst.
func (e *Engine) CopyTo(ctx context.Context, src, dst string, opts FileOptions) (Capability, error) {
	return e.TransferFile(ctx, src, dst, Copy, opts)
}

// MoveTo moves src to dst.
func (e *Engine) MoveTo(ctx context.Context, src, dst string, opts FileOptions) (Capability, error) {
	return e.TransferFile(ctx, src, dst, Move, opts)
}
