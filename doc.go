// Package coredb provides shared ambient types used across the storage substrate's
// subpackages: a correlation UUID for structured logging, the library's error codes,
// and default log configuration. The three core subsystems live in their own
// packages: trie (immutable copy-on-write key/value index), replacer (the LRU-K
// eviction policy), and buffer (the buffer pool manager tying frames to a disk sink).
package coredb
