// Package atmos provides a lightweight directive-dispatch engine for command-line scripts. The first
// argument selects a registered option, optionally with a sub-method ("directive:method"), and the
// remaining arguments are handed to its handler.
//
// Options come from three places, in precedence order: the built-ins (version, clear, help, make,
// config, serve), options registered by the embedding program, and handlers discovered in the
// configured directory. A discovered handler is a descriptor file whose name is its type name;
// "CleanCache.yaml" answers to "clean-cache". Descriptors either run shell lines or instantiate a
// Go command provided with [Engine.Provide].
package atmos
