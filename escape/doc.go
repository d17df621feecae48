// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

/*
Package escape compiles a set of "byte -> replacement" pairs
into the two structures consumed by an escaping routine:

The classification table maps every byte value to either an
index into the replacement table or to the "no match" value,
which is the number of pairs.

The compacted encoding describes the same set using at most a
handful of comparison groups (closed ranges and single bytes)
so that a fixed-width vector kernel can test a whole block of
input with a constant number of compare instructions. The
encoding is allowed to over-report: a range may cover bytes
that have no replacement. The table is always the arbiter;
the encoding is only a filter in front of it.

# Flat encoding

Groups are serialized with all ranges first (two bytes each,
lo then hi) followed by singletons (one byte each). A trailing
Sentinel (128) is appended when there are no ranges or when
there are two or more singletons; in that case a decoder must
treat every byte before the sentinel as a singleton. Otherwise
a decoder consumes pairs of bytes as ranges, and a single
leftover byte is a singleton.
*/
package escape
