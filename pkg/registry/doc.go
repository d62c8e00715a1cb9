// See registry.go for the package doc comment.
package registry
