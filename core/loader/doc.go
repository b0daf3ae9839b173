// Package loader registers HTTP features on the fiber app.
//
// A feature (missing-parts, images, integrity) implements Feature. The start
// command registers every feature with a Manager; LoadAll mounts the enabled
// ones in registration order and skips the rest, logging each decision. The
// images feature, for instance, is disabled when no image cache is configured.
package loader
