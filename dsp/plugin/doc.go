// Package plugin publishes the static metadata a generic audio-plugin host
// needs to discover, present and wire the crusher effects: labels, unique
// identifiers, port layout, control ranges and capability flags.
//
// Descriptors live in an explicit [Registry] built once by the hosting
// adapter. [DefaultRegistry] returns the standard library of two effects:
//
//	index 0  id 1337  basic_quantizer    Quantizing Bitcrusher
//	index 1  id 1338  basic_downsampler  Downsampling Bitcrusher
package plugin
