// Package gpu holds the GPU-facing half of the page cache: the atlas
// texture that resident pages are copied into, the staging-buffer ring
// that pipelines those copies, and the device plumbing on gogpu/wgpu.
//
// Everything here is driven from the single goroutine that owns the GPU
// queue; nothing in this package is safe for concurrent mutation and
// nothing here needs to be.
package gpu
