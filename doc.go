// Package aedat reads AEDAT4 files, the container format for
// neuromorphic sensor recordings. A file interleaves packets from
// multiple streams: DVS events, camera frames, IMU samples and
// external trigger pulses.
package aedat

// AEDAT4 container layout. All integers are little-endian.
//
// file:
//   magic        [14]byte "#!AER-DAT4.0\r\n"
//   ioHeaderSize uint32
//   ioHeader     flatbuffer {
//     fileDataPosition int64  // Offset of fileData, negative if absent.
//     description      string // XML stream description.
//   }
//   packets      []packet // Until fileDataPosition, or EOF if absent.
//   fileDataSize uint32   // Only when fileDataPosition >= 0.
//   fileData     flatbuffer { entries []fileDataEntry }
//
//
// packet {
//   streamID         int32
//   codec            uint8 // 0 none, 1 lz4, 2 zstd.
//   reserved         [3]byte
//   compressedSize   int32
//   uncompressedSize int32 // -1 if undeclared.
//
//   // Size-prefixed flatbuffer once decompressed, with file
//   // identifier EVTS, FRME, IMUS or TRIG.
//   body []byte
// }
//
//
// fileDataEntry { // 32 bytes. Timestamps are in microseconds.
//   byteOffset     int64 // Offset of a packet header.
//   timestampStart int64
//   timestampEnd   int64
//   streamID       int32
//   elementCount   int32
// }
