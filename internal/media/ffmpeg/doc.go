// Package ffmpeg converts uploaded media into the intermediate audio format
// consumed by the recognition backends.
//
// Converter shells out to ffmpeg through an injectable command runner; every
// failure is tagged with services.ErrConversion.
package ffmpeg
