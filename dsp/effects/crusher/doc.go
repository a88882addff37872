// Package crusher provides the two lo-fi "bitcrusher" kernels in the shape a
// plugin host drives them: a Quantizer that coarsens sample precision while
// keeping each sample's binary exponent, and a Downsampler that replaces
// runs of samples with their mean.
//
// Both types implement [Effect]. A host creates an instance, binds the three
// ports ([PortFactor], [PortInput], [PortOutput]) to storage it owns, and then
// calls Run or RunAdding with a sample count as often as it likes. The
// control value behind [PortFactor] is read again at the start of every
// processing call, so hosts may automate it per block.
//
// Run and RunAdding never allocate, lock or perform I/O and are safe to call
// from a real-time audio callback. Instances share no state; distinct
// instances may be processed concurrently without coordination.
package crusher
