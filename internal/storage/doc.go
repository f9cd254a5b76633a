// Package storage groups the link store implementations.
//
// Links live only in process memory (see package memory). A restart
// drops every issued link and pending challenge.
//
// @design DS-0102
package storage
