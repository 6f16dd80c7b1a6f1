// Package garden defines the planner's data model: palette templates,
// placed plants, the plot they live on and the serializable snapshot handed
// to persistence.
//
// # Identity
//
// Every [Template] and [Plant] receives an opaque id from [NewID] when it is
// created. Ids are the only identity: edit targeting, deletion and storage
// keys all use them, never slice position. A plant copies its template's
// attributes by value, so deleting or editing a palette entry never touches
// plants already in the ground.
//
// # Units
//
// Spread and depth are centimeters. Spread is the footprint diameter, so a
// plant's radius is Spread/2. Plant coordinates are the footprint center in
// plot space.
package garden
