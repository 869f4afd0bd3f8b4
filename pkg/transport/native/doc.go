/*
Package native implements the Chrome-native-messaging-shaped stdio
transport (§6.2): each message is a 4-byte little-endian length prefix
followed by a JSON body, read from and written to an io.Reader/io.Writer
(os.Stdin/os.Stdout in production). No example repo in the retrieved pack
touches this protocol, so the frame codec is built directly on
encoding/binary and encoding/json rather than adopting a third-party
framing library (§11.5).
*/
package native
