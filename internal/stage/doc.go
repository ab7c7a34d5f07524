// Package stage declares the pipeline's stage graph: which artifacts each
// stage requires and produces, how a stage is addressed (Target), and the
// contract every stage handler implements. Dependency checks live here so
// every stage gates on the same rules before any generation call is made.
package stage
