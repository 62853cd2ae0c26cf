/*
Package knowledge holds the lookup and excerpting rules shared by every knowledge base adapter.

Destinations are matched on a normalized form of their names: case-folded, without
whitespace or punctuation, and without common administrative suffixes ("city", "-shi",
"市", "県"...). Long guides are reduced to a bounded excerpt that keeps the lead section
and prefers the "##" sections mentioning the purpose of the trip.
*/
package knowledge
