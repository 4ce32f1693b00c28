// Package realm implements the portal's authentication realms.
//
// A realm is an independent authentication domain: its own secret, its
// own store, its own cookie. The portal runs two of them, student and
// teacher, which the original implemented as two parallel copies of
// the same logic. Here the logic exists once, generic over the record
// type, and the two realms are two configurations of it.
//
// The realms deliberately differ in one place: after verifying a
// token, the teacher realm re-reads its store and treats a vanished
// record as unauthenticated, while the student realm trusts the
// signature alone. The asymmetry is carried in the LookupOnCheck
// config flag. Whether students should get the same treatment is a
// product question, not an engineering one; flipping the flag is the
// whole change.
package realm
