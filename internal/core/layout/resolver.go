package layout

import (
	"log/slog"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/thawee/SmartTomcat/internal/core/domain"
)

// =============================================================================
// Marker Vocabulary
// =============================================================================

// Directory names recognised verbatim under a project root.
const (
	MarkerJavaSource     = "JavaSource"
	MarkerSrc            = "src"
	MarkerConfDev        = "confdev"
	MarkerConfDevRes     = "Resource"
	MarkerOutput         = "bin"
	MarkerEndorsed       = "endorsed"
	MarkerWebContent     = "WebContent"
	MarkerWebInf         = "WEB-INF"
	MarkerLib            = "lib"
	MarkerDescriptorFile = "web.xml"
)

var (
	mavenJava      = filepath.Join("src", "main", "java")
	mavenResources = filepath.Join("src", "main", "resources")
	mavenWebapp    = filepath.Join("src", "main", "webapp")
)

// webRootCandidates are tried in order; the first one holding WEB-INF wins
// for library lookup, all of them are reported as web roots.
var webRootCandidates = []string{MarkerWebContent, mavenWebapp}

// =============================================================================
// Resolver
// =============================================================================

// Resolver resolves a project root into a LayoutDescriptor.
type Resolver struct {
	fs     afero.Fs
	logger *slog.Logger
}

// NewResolver creates a resolver reading from fs.
func NewResolver(fs afero.Fs, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{fs: fs, logger: logger}
}

// Resolve walks root against the marker table. Missing markers are not
// errors; the only failure is a root that cannot be enumerated.
func (r *Resolver) Resolve(root string) (domain.LayoutDescriptor, error) {
	root = filepath.Clean(root)
	if _, err := afero.ReadDir(r.fs, root); err != nil {
		return domain.LayoutDescriptor{}, domain.NewIOFault("resolve", root, err)
	}

	desc := domain.LayoutDescriptor{
		Root:        root,
		SourceRoots: []domain.SourceRootSpec{},
		LibraryDirs: []domain.LibraryDirSpec{},
		WebRoots:    []string{},
	}

	r.resolveSources(root, &desc)
	r.resolveOverlay(root, &desc)
	r.resolveOutput(root, &desc)
	r.resolveLibraries(root, &desc)
	r.resolveWebRoots(root, &desc)

	r.logger.Debug("resolved layout",
		"root", root,
		"source_roots", len(desc.SourceRoots),
		"library_dirs", len(desc.LibraryDirs),
		"web_roots", len(desc.WebRoots),
	)
	return desc, nil
}

func (r *Resolver) resolveSources(root string, desc *domain.LayoutDescriptor) {
	if p := filepath.Join(root, MarkerJavaSource); r.isDir(p) {
		addSource(desc, p, false)
	}

	src := filepath.Join(root, MarkerSrc)
	if !r.isDir(src) {
		return
	}
	javaDir := filepath.Join(root, mavenJava)
	if !r.isDir(javaDir) {
		addSource(desc, src, false)
		return
	}
	addSource(desc, javaDir, false)
	if p := filepath.Join(root, mavenResources); r.isDir(p) {
		addSource(desc, p, true)
	}
}

// resolveOverlay applies the confdev convention. Resource and WEB-INF are
// synonyms for the overlay resource root; both are added when present.
func (r *Resolver) resolveOverlay(root string, desc *domain.LayoutDescriptor) {
	confdev := filepath.Join(root, MarkerConfDev)
	if !r.isDir(confdev) {
		return
	}
	if p := filepath.Join(confdev, MarkerJavaSource); r.isDir(p) {
		addSource(desc, p, false)
	}
	for _, name := range []string{MarkerConfDevRes, MarkerWebInf} {
		if p := filepath.Join(confdev, name); r.isDir(p) {
			addSource(desc, p, true)
		}
	}
}

func (r *Resolver) resolveOutput(root string, desc *domain.LayoutDescriptor) {
	p := filepath.Join(root, MarkerOutput)
	desc.OutputDir = &domain.OutputDirRequest{
		Path:            p,
		CreateIfMissing: !r.isDir(p),
	}
}

func (r *Resolver) resolveLibraries(root string, desc *domain.LayoutDescriptor) {
	if p := filepath.Join(root, MarkerEndorsed); r.isDir(p) {
		desc.LibraryDirs = append(desc.LibraryDirs, domain.LibraryDirSpec{
			Path:        p,
			LibraryName: domain.LibraryEndorsed,
			Scope:       domain.ScopeProvided,
		})
	}

	for _, candidate := range webRootCandidates {
		p := filepath.Join(root, candidate, MarkerWebInf, MarkerLib)
		if r.isDir(p) {
			desc.LibraryDirs = append(desc.LibraryDirs, domain.LibraryDirSpec{
				Path:        p,
				LibraryName: domain.LibraryWebInf,
				Scope:       domain.ScopeCompile,
			})
			return
		}
	}
}

func (r *Resolver) resolveWebRoots(root string, desc *domain.LayoutDescriptor) {
	for _, candidate := range webRootCandidates {
		p := filepath.Join(root, candidate)
		if r.isDir(filepath.Join(p, MarkerWebInf)) {
			desc.WebRoots = append(desc.WebRoots, p)
		}
	}
}

func (r *Resolver) isDir(path string) bool {
	ok, err := afero.DirExists(r.fs, path)
	if err != nil {
		r.logger.Debug("marker check failed", "path", path, "error", err)
		return false
	}
	return ok
}

func addSource(desc *domain.LayoutDescriptor, path string, isResource bool) {
	desc.SourceRoots = append(desc.SourceRoots, domain.SourceRootSpec{Path: path, IsResource: isResource})
}
