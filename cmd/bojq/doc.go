// Command bojq manages a code-generation backend's problem queue.
//
// Run without arguments on a terminal it opens the interactive browser;
// otherwise it prints the queue. Subcommands cover the same actions for
// scripts: list, add, delete, generate, run-next, history, logs and watch.
package main
