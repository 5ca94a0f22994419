// Package config provides the hierarchical configuration tree consumed by
// templates, and loaders that build it from YAML, JSON, or HCL documents.
//
// A tree is made of named container nodes and named leaf values. Several
// siblings may share a name; templates iterate over them in document order.
package config
