// Package sequence defines the fixed rebuild sequence as plain values.
//
// This package is part of the functional core. It holds the five command
// descriptors, the container and image names they operate on, and the
// linear stage machine that walks them. Nothing here spawns a process.
//
// # Steps
//
//  1. docker container stop rta-nuxt rta-asp.net
//  2. docker container rm rta-nuxt rta-asp.net
//  3. docker rmi rta-nuxt rta-asp.net
//  4. npm run build (in Frontend/)
//  5. docker compose up -d
//
// # Usage
//
// The imperative shell (internal/shell/sequencer) resolves the descriptors
// against the project root and hands them to a runner one at a time.
//
//	cmds, err := sequence.Resolve(sequence.Options{Root: root})
//	for _, cmd := range cmds {
//		runner.Run(ctx, cmd)
//	}
package sequence
