package ultrahdr

import "fmt"

// gainmapXMPTemplate is the Container:Directory/Container:Item packet declaring the
// relationship between the primary SDR image and the embedded gain-map,
// per the Google/Adobe Ultra HDR extension to the Container/Item XMP
// schemas. Mirrors the literal template the original crate's xmp.rs
// builds, parameterised only on the mime type and byte length of each
// item.
const gainmapXMPTemplate = `<?xpacket begin="" id="W5M0MpCehiHzreSzNTczkc9d"?>
<x:xmpmeta xmlns:x="adobe:ns:meta/" x:xmptk="pica">
 <rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">
  <rdf:Description rdf:about=""
    xmlns:Container="http://ns.google.com/photos/1.0/container/"
    xmlns:Item="http://ns.google.com/photos/1.0/container/item/"
    xmlns:hdrgm="http://ns.adobe.com/hdr-gain-map/1.0/"
    hdrgm:Version="1.0">
   <Container:Directory>
    <rdf:Seq>
     <rdf:li rdf:parseType="Resource">
      <Container:Item
        Item:Semantic="Primary"
        Item:Mime="image/jpeg"
        Item:Length="0"/>
     </rdf:li>
     <rdf:li rdf:parseType="Resource">
      <Container:Item
        Item:Semantic="GainMap"
        Item:Mime="%s"
        Item:Length="%d"/>
     </rdf:li>
    </rdf:Seq>
   </Container:Directory>
  </rdf:Description>
 </rdf:RDF>
</x:xmpmeta>
<?xpacket end="w"?>`

// BuildXMP renders the gain-map container packet, prefixed with the
// standard XMP APP1 namespace signature so it can be written directly as
// an APP1 segment payload.
func BuildXMP(gainmapMime string, gainmapLength int) []byte {
	packet := fmt.Sprintf(gainmapXMPTemplate, gainmapMime, gainmapLength)
	return append(append([]byte{}, xmpSignature...), []byte(packet)...)
}
