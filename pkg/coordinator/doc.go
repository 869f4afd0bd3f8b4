/*
Package coordinator implements the database coordinator: the seven-class x
temperature-tier layout described in §3.3/§4.3 of the design. It owns a
registry.Registry of storage engines, some opened eagerly at construction
(conversations/active, knowledge/active, embeddings/active,
summaries/session, and the four single-tier classes) and the rest lazily
on first promotion or first cascading lookup that needs them.
*/
package coordinator
