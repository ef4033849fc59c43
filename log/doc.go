/*Package log implements the logging for the bolt client

There are 4 logging levels - trace, info, warn and error.  Setting trace
would also set info, warn and error logs.  You can use the
SetLevel("trace") to set trace logging, for example.
*/
package log
