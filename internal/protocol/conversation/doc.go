// Package conversation maps an unordered pair of user ids to a conversation id.
//
// IDFor sorts the two ids and joins them with Separator, which user ids may
// not contain, so the mapping is commutative and injective.
package conversation
