// Package commands defines the polychat CLI and wires dependencies for subcommands.
//
// Commands
//
//   - init            Create the local key pair if missing
//   - register        Create keys and publish your profile under a username
//   - fingerprint     Print your fingerprint, or a peer's published one
//   - rotate          Replace and republish your key pair
//   - verify          Check the published key against the local key
//   - open            Open or create the conversation with a peer
//   - chats           List your conversations
//   - send            Encrypt and send a message
//   - history         Decrypt and print a conversation
//   - watch           Stream new messages from a conversation
//   - delete          Delete a message
//   - lang            Set a conversation or profile language
//   - delete-account  Remove your profile and local key
//
// Peers are given as a user id or as @username.
//
// # Implementation
//
// Configuration comes from the environment (and an optional .env file) and
// is overridden by persistent flags. The root command builds the dependency
// graph (secret store, document store client, services) before any
// subcommand runs and closes it afterwards.
package commands
