package buildconfig

import (
	"log/slog"

	"github.com/spf13/afero"
	"github.com/thawee/SmartTomcat/internal/core/domain"
)

// =============================================================================
// Configuration Builder
// =============================================================================

// Builder applies source roots, SDK and output path from a descriptor.
type Builder struct {
	fs     afero.Fs
	logger *slog.Logger
}

// NewBuilder creates a builder. fs is used only for best-effort creation
// of a requested output directory.
func NewBuilder(fs afero.Fs, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{fs: fs, logger: logger}
}

// Apply issues the descriptor's build-model requests against sink. sdk may
// be nil. A failed output directory creation is logged and the output path
// is left unset.
func (b *Builder) Apply(desc domain.LayoutDescriptor, sdk *domain.SDKRef, sink Sink) {
	for _, root := range desc.SourceRoots {
		sink.AddSourceRoot(root.Path, root.IsResource)
	}

	if sdk != nil {
		sink.SetSDK(*sdk)
	}

	if desc.OutputDir == nil {
		return
	}
	if !b.ensureOutputDir(*desc.OutputDir) {
		return
	}
	// Main and test output share one directory.
	sink.SetOutputPath(desc.OutputDir.Path)
	sink.SetTestOutputPath(desc.OutputDir.Path)
}

func (b *Builder) ensureOutputDir(req domain.OutputDirRequest) bool {
	if !req.CreateIfMissing {
		return true
	}
	if err := b.fs.MkdirAll(req.Path, 0o755); err != nil {
		b.logger.Warn("failed to create output directory, continuing without output path",
			"path", req.Path,
			"error", domain.NewIOFault("mkdir", req.Path, err),
		)
		return false
	}
	b.logger.Debug("created output directory", "path", req.Path)
	return true
}
