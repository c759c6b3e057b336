/*
Package rdb decodes Raw Data Blocks, the chunked container used by forge
archive entries, and extracts texture maps from the decoded stream.

A Raw Data Block is preceded by a sentinel copy of the block magic and
consists of a header, a per-chunk size index and chunk bodies. Each chunk is
either stored verbatim (compressed size equals uncompressed size) or
compressed with the codec named by the header. Decoded chunks concatenate
into one stream that starts with a Datafile Header.

Texture maps keep their top mip either inline in the decoded stream or in a
sibling archive entry named "<asset>_TopMip_0". The Extractor picks the
layout, runs sibling entries through the same Decode pipeline and hands a
synthesized DDS container to a Converter.
*/
package rdb
