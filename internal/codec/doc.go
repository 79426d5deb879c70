// Package codec reads and writes NPSS sample files.
//
// An NPSS file is a gzip stream holding a small header followed by
// length-prefixed records. Each record is one sample encoded in the protobuf
// wire format:
//
//	header  := "NPSS" version:u8 count:uvarint last:zigzag-varint
//	record  := length:uvarint ThreadsSample
//
// A header count of 0 means the writer did not know the number of samples
// (e.g. a recording that was still streaming) and readers must scan the
// file to learn it.
//
// # Usage
//
//	r, err := codec.NewReader(f)
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//
//	for {
//	    s, err := r.ReadSample()
//	    if err == io.EOF {
//	        break
//	    }
//	    // Process sample...
//	}
package codec
