// Package layout infers the build structure of a web-application project
// from the shape of its directory tree.
//
// Resolution only reads the filesystem, through an afero.Fs so callers can
// hand it an OS filesystem or an in-memory tree. It never caches: the same
// tree always yields the same LayoutDescriptor.
//
// # Conventions
//
// Three overlapping conventions are recognised and applied additively:
//
//   - legacy Eclipse projects (JavaSource, WebContent/WEB-INF/lib)
//   - Maven/Gradle projects (src/main/java, src/main/resources, src/main/webapp)
//   - the confdev overlay (confdev/JavaSource, confdev/Resource or confdev/WEB-INF)
//
// Overlapping rules are not deduplicated; a tree with both JavaSource and
// src/main/java yields both as source roots.
//
// # Usage
//
//	r := layout.NewResolver(afero.NewOsFs(), logger)
//	desc, err := r.Resolve("/work/shop")
package layout
