// Package textutil provides the string normalization and similarity
// primitives shared by the cross-source matcher and the similarity engine.
package textutil
