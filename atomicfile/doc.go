/*
Package atomicfile replaces a file's content all-or-nothing: data goes to
a temporary file in the same directory which is renamed over the
destination on Close. A crash or error part-way through a write never
leaves a half-written file behind.

	func replaceFile(path string, data []byte) error {
		w, err := atomicfile.New(path)
		if err != nil {
			return err
		}
		// cleans up the temp file if we error out below
		defer w.RemoveIfNotClosed()

		_, err = w.Write(data)
		if err != nil {
			return err
		}
		return w.Close()
	}
*/
package atomicfile
