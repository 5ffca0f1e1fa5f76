// Package domain holds forage's core types: recipes, version records,
// change events, search results and validation outcomes. It has no
// dependencies outside the standard library.
package domain
