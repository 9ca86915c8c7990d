/*
Package assembler turns the scheduler exports of one network into a Dataset.

All inputs are parsed concurrently; the wall-clock cost of Assemble is bounded
by the slowest file. Required roles are checked before any parsing starts.
Auxiliary "external detail" files are best-effort by default: a file that
fails to parse is reported and skipped, unless WithStrictAuxiliary is set.

The network name is derived from the operations file label, which must embed
"NET - <name> -". A label without it does not stop parsing; it only prevents
building a graph until a network name is supplied some other way.
*/
package assembler
