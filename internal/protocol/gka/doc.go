// Package gka implements the cascaded multi-party Diffie-Hellman group key
// agreement.
//
// Peers form an ordered chain with the initiator first. During the up-flow
// every hop raises each value it carries to its own private exponent and
// forwards the message to the next hop. The last hop finalizes the shared
// secret for itself and sends every other participant a personalized
// broadcast copy carrying the single value that participant still has to
// raise to its exponent. All peers end with g^(x1*x2*...*xN) and derive the
// same group key from it.
package gka
