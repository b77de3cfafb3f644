// Package registry provides device registry backends implementing
// interfaces.DeviceRegistry.
//
// The registry is the realtime data store the backend relays commands
// through: devices maintain their own records (status heartbeats) and pick up
// commands written into them. The backend itself holds no device state.
//
// Two backends exist:
//
//   - FirebaseRegistry speaks the Firebase Realtime Database REST surface
//     (GET/PUT/DELETE {node}.json), the production deployment target.
//   - BadgerRegistry embeds a local badger store with the same record layout,
//     for development and tests.
//
// RegistryFor selects a backend by URI (firebase:// or badger://).
package registry
