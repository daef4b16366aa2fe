package ocr

// ExtractionInstruction is sent with every page image to model-backed
// backends. The local backend receives only the image.
const ExtractionInstruction = `You are given one slide or document page as an image.
Return a single JSON object and nothing else:

{
  "textElements": [
    {"text": string, "x": number, "y": number, "width": number, "height": number,
     "fontSize": number, "fontWeight": "bold" | "normal", "fontColor": "#RRGGBB"}
  ],
  "imageRegions": [
    {"x": number, "y": number, "width": number, "height": number}
  ]
}

Rules:
- All coordinates and sizes are percentages (0-100) of the page width (x, width)
  or page height (y, height, fontSize), measured from the top-left corner.
- Group words that belong to the same visual text block into one element and keep
  its line breaks as "\n".
- Keep the text exactly as written, in its original language.
- imageRegions lists photos, charts, diagrams, logos and icons. Do not list text.
- Return {"textElements": [], "imageRegions": []} for an empty page.`
