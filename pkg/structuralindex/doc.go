/*
Package structuralindex implements the property -> {node id} inverted
index (§4.6), backed by an ordered sub-tree of the storage engine.

Keys are composed as "property\x00value\x00node_id" so that a prefix scan
of "property\x00value\x00" yields every id recorded for that property/value
pair, in lexicographic order. Values are empty; the key alone carries the
membership fact.
*/
package structuralindex
