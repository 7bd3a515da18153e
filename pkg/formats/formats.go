// Package formats provides readers for Wavefront OBJ and MTL files.
//
// The readers keep the multi-index layout of the source: positions, normals
// and texture coordinates live in separate flat arrays, and every face corner
// carries its own index into each of them.
package formats

// Note: OBJ geometry is implemented in obj.go
// Note: MTL material libraries are implemented in mtl.go
