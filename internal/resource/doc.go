// Package resource serves the gated resources from a directory.
//
// A resource id is a bare file name accepted by a whitelist pattern
// (products_<contact>_<session>_<unixms>.html by default). Ids never
// contain path separators, so a lookup cannot leave the directory.
//
// @design DS-0206
package resource
