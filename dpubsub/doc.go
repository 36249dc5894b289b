// Package dpubsub contains adapters between discrete observables
// and other in-application publish-subscribe shapes:
// range-over-func sequences and channels.
//
// None of the adapters buffer values.
// A consumer that stops pulling simply stops receiving,
// and the next pull observes only the latest value.
package dpubsub
