// Package schemas registers the built-in import schemas with the importer
// registry. Import this package for its side effects.
package schemas

// Each schema file uses init() to register its schemas. Declarative schemas
// from YAML files are added at startup with LoadDir.
