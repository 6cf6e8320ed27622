// Package types defines the entity types, configuration surface, shared
// interfaces (Channel, Store), and standard errors for the Slate writeback
// system.
package types
