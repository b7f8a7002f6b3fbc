/*
Package phrasedict implements the phrase dictionary layer of a
phonetic-input engine: given a sequence of syllable codes it returns
candidate phrases, and it records user additions, updates and removals
without ever writing to the read-only bulk table it ships with.

A Dictionary merges two sources behind one query surface: a backing
store satisfying the KVStore capability (exact-key Find plus full sorted
Iter) and an in-memory overlay of user edits. Removals are soft: the key
is tombstoned in a graveyard set, which suppresses matching entries from
every source without touching the store.

The package also ships the persistent provider: a sorted single-file
phrase table written by Writer and served by Reader.

Data Structure Documentation

Store

A store contains a series of data blocks followed by an index and
a store footer.

    Store layout:
    +---------+---------+---------+-------------+--------------+
    | block 1 |   ...   | block n | block index | store footer |
    +---------+---------+---------+-------------+--------------+

    Block index:
    +--------------------------+--------------------+--------------------+-------+
    | key len block 1 (varint) |  offset 1 (varint) | max key 1 (varlen) |  ...  |
    +--------------------------+--------------------+--------------------+-------+

    Offsets after the first are delta-encoded against the previous block.

    Store footer:
    +------------------------+------------------+
    | index offset (8 bytes) |  magic (8 bytes) |
    +------------------------+------------------+

Block

A block comprises of a series of sections, followed by a section
index and a single-byte compression type indicator.

    Block layout:
    +-----------+---------+-----------+---------------+---------------------------+
    | section 1 |   ...   | section n | section index | compression type (1-byte) |
    +-----------+---------+-----------+---------------+---------------------------+

    Section index:
    +----------------------------+-------+----------------------------+-------------------------------+
    | section offset 2 (4 bytes) |  ...  | section offset n (4 bytes) |  number of sections (4 bytes) |
    +----------------------------+-------+----------------------------+-------------------------------+

Section

A section is a series of cells. The first cell of a section stores its
key in full while subsequent keys share a prefix with their predecessor
and store only the unshared suffix.

    +-------------------+---------------------+--------------------+----------------------+------------------+-------+
    | shared 1 (varint) | unshared 1 (varint) | value len (varint) | key suffix (varlen)  | value (varlen)   |  ...  |
    +-------------------+---------------------+--------------------+----------------------+------------------+-------+

Cell values are phrase records: frequency (4 bytes LE), last-used
(8 bytes LE), text length (1 byte), UTF-8 text. A table may additionally
carry one metadata cell under the reserved InfoKey.
*/
package phrasedict
