// Package supervisor runs the api and worker processes' long-lived services
// under a suture supervision tree.
package supervisor
