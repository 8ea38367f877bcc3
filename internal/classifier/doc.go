// Package classifier sends captured frames to the backend's recognition
// endpoint and returns the proposed folder label.
package classifier
