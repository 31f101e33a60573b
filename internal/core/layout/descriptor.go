package layout

import (
	"path/filepath"

	"github.com/thawee/SmartTomcat/internal/core/domain"
)

// ProjectRootForDescriptor walks upward from a web.xml file to the project
// root it belongs to. Only path names are inspected.
//
// Recognised shapes:
//
//	<root>/src/main/webapp/WEB-INF/web.xml  -> <root>
//	<root>/<web root>/WEB-INF/web.xml       -> <root>
func ProjectRootForDescriptor(path string) (string, error) {
	path = filepath.Clean(path)
	if filepath.Base(path) != MarkerDescriptorFile {
		return "", domain.NewValidationError("descriptor", path, domain.ErrNotDescriptor)
	}

	webInf := filepath.Dir(path)
	if filepath.Base(webInf) != MarkerWebInf {
		return "", domain.NewValidationError("descriptor", path, domain.ErrNotDescriptor)
	}

	webRoot := filepath.Dir(webInf)
	if filepath.Base(webRoot) == "webapp" {
		mainDir := filepath.Dir(webRoot)
		srcDir := filepath.Dir(mainDir)
		if filepath.Base(mainDir) == "main" && filepath.Base(srcDir) == MarkerSrc {
			return filepath.Dir(srcDir), nil
		}
	}

	// A web root at the filesystem top has no project root above it.
	root := filepath.Dir(webRoot)
	if root == webRoot {
		return "", domain.NewValidationError("descriptor", path, domain.ErrNotDescriptor)
	}
	return root, nil
}
