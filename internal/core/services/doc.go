// Package services contains forage's core logic: change detection,
// index management, sync coordination, retrieval and answer validation.
package services
